// Package services defines the [Source] interface for remote playback logs and implements it for shared spreadsheets.
//
// # Spreadsheet Source
//
// [SheetService] never talks to the interactive editor: [ExportURL] rewrites the configured edit URL
// into the CSV export endpoint of the same document and sheet (gid), and [SheetService.Fetch] downloads and parses it.
//
// Fetches are paced by a [rate.Limiter] so that repeated cycles inside one process cannot hammer the sheet host.
//
// # Error Handling
//
// Every failure wraps [shared.ErrFetch]:
//   - the URL has no document id or is not absolute
//   - transport failure or non-2xx status
//   - an HTML body (private sheets answer with a sign-in page)
//   - an empty export or malformed CSV
//
// An empty [models.Table] is only returned when the sheet really has a header and no rows.
package services
