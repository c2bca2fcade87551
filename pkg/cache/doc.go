// Package cache keeps a time-bounded copy of each crawled posts page on disk
// as {dir}/cache_page_{N}.json.
package cache
