package seedfile

// Entry is a single bookmark entry in the seed YAML
type Entry struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// Config is the root structure of a seed file:
//
//	bookmarks:
//	  - title: Example
//	    url: https://example.com
type Config struct {
	Bookmarks []Entry `yaml:"bookmarks"`
}
