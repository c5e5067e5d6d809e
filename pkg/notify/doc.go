// Package notify implements the notification dispatch pipeline: request
// validation, mail provider resolution, transport verification, template
// rendering, and delivery, with every failure classified before it reaches
// the HTTP layer.
package notify
