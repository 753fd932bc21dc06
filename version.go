package docent

// Version is the library version, reported by the CLI and the MCP
// server handshake.
var Version = "0.1.0"
