// Package fileutil holds file helpers shared by the render fallbacks.
package fileutil
