package version

// VERSION is the released version of canbittiming
const VERSION = "0.2.0"
