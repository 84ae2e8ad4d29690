package fontatlas

// Version is the release version reported by the command line tool.
const Version = "1.2.0"
