// Command subtitler runs the subtitle translation service and talks to it.
//
// "subtitler serve" starts the HTTP API. "submit", "status", "jobs" and
// "download" are thin clients of that API; "run" processes a single local
// file in-process without a server.
package main
