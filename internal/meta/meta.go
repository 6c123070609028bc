// Package meta extracts rights-related EXIF/IPTC/XMP metadata from image
// files. The dataset report uses it to flag images that carry stock-agency
// copyright strings, which are unsafe to redistribute in a test corpus.
package meta

import (
	"bytes"
	"os"
	"strings"

	"github.com/bep/imagemeta"
)

// Rights holds the rights-related metadata fields of an image.
type Rights struct {
	Copyright    string `json:"copyright,omitempty"`     // EXIF Copyright
	Artist       string `json:"artist,omitempty"`        // EXIF Artist
	Credit       string `json:"credit,omitempty"`        // IPTC Credit
	Source       string `json:"source,omitempty"`        // IPTC Source
	Byline       string `json:"byline,omitempty"`        // IPTC Byline
	UsageTerms   string `json:"usage_terms,omitempty"`   // XMP UsageTerms
	WebStatement string `json:"web_statement,omitempty"` // XMP WebStatement
	DCRights     string `json:"dc_rights,omitempty"`     // XMP/DC Rights
	DCCreator    string `json:"dc_creator,omitempty"`    // XMP/DC Creator
}

// stockKeywords are substrings identifying stock-photo agencies when found
// (case-insensitive) in any rights field.
var stockKeywords = []string{
	"shutterstock",
	"gettyimages",
	"getty images",
	"istockphoto",
	"istock",
	"alamy",
	"depositphotos",
	"dreamstime",
	"123rf",
	"adobestock",
	"adobe stock",
	"bigstockphoto",
	"stocksy",
	"pond5",
	"masterfile",
	"superstock",
	"agefotostock",
	"colourbox",
	"vectorstock",
	"freepik",
	"canstockphoto",
}

// wantedTags maps (source, tag-name) to true for every tag we extract.
var wantedTags = map[imagemeta.Source]map[string]bool{
	imagemeta.EXIF: {
		"Copyright": true,
		"Artist":    true,
	},
	imagemeta.IPTC: {
		"CopyrightNotice": true,
		"Credit":          true,
		"Source":          true,
		"Byline":          true,
	},
	imagemeta.XMP: {
		"UsageTerms":   true,
		"WebStatement": true,
		"Rights":       true,
		"Creator":      true,
	},
}

// Extract parses rights metadata from raw image bytes. Returns nil when the
// data is empty, unparseable, or carries none of the wanted fields; it never
// returns an error.
func Extract(data []byte) *Rights {
	if len(data) == 0 {
		return nil
	}

	r := &Rights{}
	found := false

	_, err := imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.EXIF | imagemeta.IPTC | imagemeta.XMP,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			if tags, ok := wantedTags[ti.Source]; ok {
				return tags[ti.Tag]
			}
			return false
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			s := tagValueString(ti.Value)
			if s == "" {
				return nil
			}
			switch ti.Source {
			case imagemeta.EXIF:
				switch ti.Tag {
				case "Copyright":
					r.Copyright = s
				case "Artist":
					r.Artist = s
				}
			case imagemeta.IPTC:
				switch ti.Tag {
				case "CopyrightNotice":
					if r.Copyright == "" {
						r.Copyright = s
					}
				case "Credit":
					r.Credit = s
				case "Source":
					r.Source = s
				case "Byline":
					r.Byline = s
				}
			case imagemeta.XMP:
				switch ti.Tag {
				case "UsageTerms":
					r.UsageTerms = s
				case "WebStatement":
					r.WebStatement = s
				case "Rights":
					r.DCRights = s
				case "Creator":
					r.DCCreator = s
				}
			}
			found = true
			return nil
		},
	})
	if err != nil || !found {
		return nil
	}

	return r
}

// ExtractFile reads the file at path and extracts its rights metadata.
// Any read failure yields nil.
func ExtractFile(path string) *Rights {
	data, err := os.ReadFile(path) //nolint:gosec // caller-supplied path by design
	if err != nil {
		return nil
	}
	return Extract(data)
}

// StockAgency returns the first stock-agency keyword found in any rights
// field, or "" when none match.
func (r *Rights) StockAgency() string {
	if r == nil {
		return ""
	}
	for _, f := range []string{
		r.Copyright, r.Artist, r.Credit, r.Source, r.Byline,
		r.UsageTerms, r.DCRights, r.DCCreator,
	} {
		if f == "" {
			continue
		}
		lower := strings.ToLower(f)
		for _, kw := range stockKeywords {
			if strings.Contains(lower, kw) {
				return kw
			}
		}
	}
	return ""
}

// tagValueString extracts a string from a tag value. XMP values may be
// string, []string, or []any (from altList/seqList).
func tagValueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		if len(val) > 0 {
			return val[0]
		}
	case []any:
		if len(val) > 0 {
			if s, ok := val[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
