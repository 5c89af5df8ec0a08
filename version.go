package weft

// Version is the library version, bumped at release time.
var Version = "0.3.0"
