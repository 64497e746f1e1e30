// Package alarm implements the plain-text HTTP transport for the alarm service.
//
// GET / reports the alarm state, /alarm?alarm=true|false arms or disarms it.
// Every response is text/plain and echoes the request arguments.
package alarm
