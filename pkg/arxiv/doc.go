// Package arxiv implements source.PageSource over the arXiv query API.
//
// A search is a submittedDate window sorted newest first. Pages are
// requested through a rate limiter (one request per configured interval),
// each page is retried on network, 429 and 5xx failures, and the Atom
// response is decoded with gofeed. The arxiv:primary_category and
// opensearch:totalResults extensions are read from the feed; an empty page
// while totalResults says more remain is reported as an empty_page error.
package arxiv
