// Package logging provides structured logging for the indexing server.
// Level, directory, and console mirroring are controlled by
// INDEX_MCP_LOG_LEVEL, INDEX_MCP_LOG_DIR, and INDEX_MCP_LOG_CONSOLE; with no
// environment configuration logging defaults to info level, written to a
// rotating file under DefaultLogDir, with no stderr mirroring.
package logging
