// Package tasks is the JSON representation of the group selector API.
package tasks

import (
	"github.com/gnps/groupselector/pkg/dashboard"
	"github.com/gnps/groupselector/pkg/features"
	"github.com/gnps/groupselector/pkg/metadata"
	"github.com/gnps/groupselector/pkg/table"
)

type Columns struct {
	Task    string   `json:"task"`
	Columns []string `json:"columns"`
	Default string   `json:"default"`
}

func ComposeColumns(task string, c metadata.Columns) Columns {
	return Columns{Task: task, Columns: nonNil(c.Names), Default: c.Default}
}

type Terms struct {
	Task     string   `json:"task"`
	Column   string   `json:"column"`
	Terms    []string `json:"terms"`
	Default1 string   `json:"default1"`
	Default2 string   `json:"default2"`
}

func ComposeTerms(task, column string, t metadata.Terms) Terms {
	return Terms{
		Task: task, Column: column, Terms: nonNil(t.Values),
		Default1: t.Default1, Default2: t.Default2,
	}
}

type Group struct {
	Task   string   `json:"task"`
	Column string   `json:"column"`
	Terms  []string `json:"terms"`
	USIs   []string `json:"usis"`
}

func ComposeGroup(task, column string, terms, usis []string) Group {
	return Group{Task: task, Column: column, Terms: nonNil(terms), USIs: nonNil(usis)}
}

// Feature is a row of the feature table. Missing values are null.
type Feature struct {
	ClusterIndex *string  `json:"cluster_index"`
	Mass         *float64 `json:"mz"`
	RT           *float64 `json:"rt"`
}

func ComposeFeature(r table.Row) Feature {
	f := Feature{}
	if c := r.Get(features.ClusterIndex); !c.IsNull() {
		s := c.String()
		f.ClusterIndex = &s
	}
	if v, ok := r.Get(features.ParentMass).Float(); ok {
		f.Mass = &v
	}
	if v, ok := r.Get(features.RTMean).Float(); ok {
		f.RT = &v
	}
	return f
}

type Features struct {
	Task     string    `json:"task"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
	Features []Feature `json:"features"`
}

func ComposeFeatures(task string, ft *features.Table, page int, size int) Features {
	rows := ft.Page(page, size)
	fs := make([]Feature, 0, len(rows))
	for _, r := range rows {
		fs = append(fs, ComposeFeature(r))
	}
	return Features{
		Task: task, Total: ft.Len(), Page: page, Pages: ft.Pages(size), Features: fs,
	}
}

type Link struct {
	Task    string   `json:"task"`
	Column  string   `json:"column"`
	Group1  []string `json:"group1"`
	Group2  []string `json:"group2"`
	USIs1   []string `json:"usi1"`
	USIs2   []string `json:"usi2"`
	Feature string   `json:"feature,omitempty"`
	URL     string   `json:"url"`
}

func ComposeLink(st dashboard.State) Link {
	return Link{
		Task:    st.Task,
		Column:  st.Column,
		Group1:  nonNil(st.Group1),
		Group2:  nonNil(st.Group2),
		USIs1:   nonNil(st.USIs1),
		USIs2:   nonNil(st.USIs2),
		Feature: st.SelectedFeature,
		URL:     st.Link,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
