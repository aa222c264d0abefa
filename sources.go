package main

import (
	// Register every snapshot source through its init()
	_ "github.com/rubiojr/signalscope/pkg/sources/file"
	_ "github.com/rubiojr/signalscope/pkg/sources/remote"
	_ "github.com/rubiojr/signalscope/pkg/sources/s3"
	_ "github.com/rubiojr/signalscope/pkg/sources/sqlsrc"
)
