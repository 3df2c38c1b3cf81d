// Package calendar wraps the Google Calendar API as the meeting capability:
// creating events with an attached video-conference request and returning
// the assigned conferencing link.
package calendar
