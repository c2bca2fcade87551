// Package ui renders terminal output for the tcphotos command: colored
// messages, the crawl and embed progress line, the run summary and end of
// run notifications.
package ui
