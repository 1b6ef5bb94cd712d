// Package logtail reads back the rotating JSON log file.
//
// # Reading
//
// Read extracts the last N lines with a ring buffer sized to N, so memory
// stays O(N) whatever the file size. Lines come back oldest first. A missing
// file yields nil, nil; the file sink may simply not have written yet.
//
//	lines, err := logtail.Read("/home/me/.server_logs/logger.logs", 400)
//
// Only the current file is read. Rotated backups (logger-<timestamp>.logs)
// are left alone.
//
// # Records
//
// Parse decodes one JSON record into an Entry, lifting the fields every
// record carries (time, level, msg, date, hostname, source) out of the
// free-form Fields map. Lines that are not JSON, such as text written by the
// console sink and redirected to a file, come back with only Raw set.
//
// Tail combines the two and drops records below a minimum level:
//
//	entries, err := logtail.Tail(path, 200, "WARN")
//	for _, e := range entries {
//		fmt.Println(e)
//	}
package logtail
