package sensor

import (
	"strings"
	"sync"
)

// PathSeparator joins site, asset and tag label in FullPath.
const PathSeparator = " > "

// FlattenedTag is a Tag annotated with its position in the hierarchy.
type FlattenedTag struct {
	Tag
	SiteName  string `json:"site_name"`
	AssetName string `json:"asset_name"`
	FullPath  string `json:"full_path"`
}

// Flatten walks sites, assets and tags in source order and returns one
// entry per tag. Sample slices are shared with the dataset, which is
// immutable once loaded.
func Flatten(ds *Dataset) []FlattenedTag {
	if ds == nil {
		return nil
	}
	tags := make([]FlattenedTag, 0, ds.TagCount())
	for _, site := range ds.Sites {
		for _, asset := range site.Assets {
			for _, tag := range asset.Tags {
				tags = append(tags, FlattenedTag{
					Tag:       tag,
					SiteName:  site.Name,
					AssetName: asset.Name,
					FullPath:  strings.Join([]string{site.Name, asset.Name, tag.Label}, PathSeparator),
				})
			}
		}
	}
	return tags
}

// FindTag returns the flattened tag with the given id.
func FindTag(tags []FlattenedTag, id string) (FlattenedTag, bool) {
	for _, t := range tags {
		if t.ID == id {
			return t, true
		}
	}
	return FlattenedTag{}, false
}

// Flattener memoizes Flatten against the identity of the dataset pointer.
// Calls with the same *Dataset return the very same slice; a different
// pointer triggers a fresh walk.
type Flattener struct {
	mu     sync.Mutex
	source *Dataset
	tags   []FlattenedTag
	walks  int
}

// Tags returns the flattened tags for ds.
func (f *Flattener) Tags(ds *Dataset) []FlattenedTag {
	f.mu.Lock()
	defer f.mu.Unlock()

	if ds == f.source && (f.tags != nil || ds == nil) {
		return f.tags
	}
	f.source = ds
	f.tags = Flatten(ds)
	f.walks++
	return f.tags
}

// Walks reports how many times the hierarchy was actually walked.
func (f *Flattener) Walks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.walks
}
