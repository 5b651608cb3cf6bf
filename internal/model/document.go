// Package model defines the core UTCP data types.
package model

import "time"

// Metadata describes the original document an envelope was built from.
type Metadata struct {
	Type     string `json:"type"`
	Checksum string `json:"checksum"`
	Size     int    `json:"size"`
	Lines    int    `json:"lines"`
	Date     string `json:"date"`
}

// Entry maps a short code to the term it stands for.
type Entry struct {
	Code string `json:"code"`
	Term string `json:"term"`
}

// Dictionary is an ordered code table for one domain ("global", "code", ...).
type Dictionary struct {
	Domain  string  `json:"domain"`
	Entries []Entry `json:"entries"`
}

// GlobalDomain is the name of the dictionary built from the document itself.
const GlobalDomain = "global"

// Dictionaries holds every dictionary of a document, global first.
type Dictionaries []Dictionary

// Len returns the number of entries across all dictionaries.
func (d Dictionaries) Len() int {
	n := 0
	for _, dict := range d {
		n += len(dict.Entries)
	}
	return n
}

// Domain returns the dictionary for the named domain, or nil.
func (d Dictionaries) Domain(name string) *Dictionary {
	for i := range d {
		if d[i].Domain == name {
			return &d[i]
		}
	}
	return nil
}

// Codes returns a code->term view of all dictionaries.
func (d Dictionaries) Codes() map[string]string {
	out := make(map[string]string, d.Len())
	for _, dict := range d {
		for _, e := range dict.Entries {
			out[e.Code] = e.Term
		}
	}
	return out
}

// Reference is a repeated structure replaced by a $REF:<id> marker.
type Reference struct {
	ID        string `json:"id"`
	Structure string `json:"structure"`
}

// References holds the references of a document in id order.
type References []Reference

// Record is a catalog entry for one encode session.
type Record struct {
	ID           string    `json:"id"`
	Path         string    `json:"path"`
	Format       string    `json:"format"`
	ContentKey   string    `json:"content_key"`
	Meta         Metadata  `json:"meta"`
	Ratio        float64   `json:"ratio"`
	EnvelopeSize int       `json:"envelope_size"`
	DictEntries  int       `json:"dict_entries"`
	RefCount     int       `json:"ref_count"`
	Compression  string    `json:"compression"`
	CreatedAt    time.Time `json:"created_at"`
}
