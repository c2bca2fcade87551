// Package scraper archives the photos of one child's Transparent Classroom
// feed.
//
// A run has three stages:
//   - sign in through an Authenticator and keep the returned Session
//   - crawl the posts pages in order until an empty page, reading each page
//     from the page cache when a fresh copy exists
//   - embed every post that has a photo: download it once, then write the
//     EXIF description, date and school GPS position, the IPTC tags and the
//     file times on every run
//
// Photo failures do not stop the run unless StopOnError is set. They are
// reported in the Summary and joined into Run's error.
//
// Usage:
//
//	cfg, err := config.Load("", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	s, err := scraper.New(cfg, scraper.Dependencies{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	summary, err := s.Run(ctx)
//	fmt.Printf("%d photos processed\n", summary.Processed)
//
// Progress can be followed by passing an Observer in Dependencies.
package scraper
