package httpclient

// MaxErrorBodySize exposes the diagnostic body limit to external tests
const MaxErrorBodySize = maxErrorBodySize
