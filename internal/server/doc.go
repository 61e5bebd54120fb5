// Package server exposes the subtitle pipeline over HTTP.
//
// Routes:
//
//	POST /upload          multipart video_file or JSON video_url; returns {"job_id": ...}
//	GET  /status/{id}     job record
//	GET  /download/{id}   rendered video as an attachment once completed
//	GET  /api/jobs        every tracked job, newest first
//	GET  /api/health      dependency and preflight status
//	GET  /api/languages   supported language codes
//
// Every route sits behind optional bearer-token auth. Errors are JSON
// objects of the form {"error": "..."}.
package server
