// Package logx is hwbot's structured logging.
//
// A small wrapper (logx.Logger) on top of zerolog keeps console output
// readable, file output JSON-structured, and can forward records at or above
// a minimum level to the Telegram chat (rate limited, never blocking).
package logx
