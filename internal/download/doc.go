// Package download fetches remote videos with yt-dlp.
//
// Downloads land in the uploads directory as <jobID>_downloaded.<ext>; the
// extension is chosen by yt-dlp, so the client locates the result by prefix
// once the tool exits.
package download
