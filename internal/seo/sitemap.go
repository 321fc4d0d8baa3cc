// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds the crawler-facing artifacts of the site:
// sitemap.xml, robots.txt and security.txt.
package seo

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Valid change frequency values.
const (
	ChangeFreqAlways  ChangeFreq = "always"
	ChangeFreqHourly  ChangeFreq = "hourly"
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
	ChangeFreqYearly  ChangeFreq = "yearly"
	ChangeFreqNever   ChangeFreq = "never"
)

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// SitemapPost contains the data needed to add a blog post to the sitemap.
type SitemapPost struct {
	ID        int64
	UpdatedAt time.Time
}

// SitemapProfile contains the data needed to add a public user profile
// to the sitemap.
type SitemapProfile struct {
	Username string
}

// SitemapBuilder builds sitemap XML from the site's public content.
type SitemapBuilder struct {
	siteURL string
	urls    []SitemapURL
}

// NewSitemapBuilder creates a new sitemap builder. A trailing slash on
// siteURL is stripped so joined paths stay canonical.
func NewSitemapBuilder(siteURL string) *SitemapBuilder {
	return &SitemapBuilder{
		siteURL: strings.TrimSuffix(siteURL, "/"),
		urls:    make([]SitemapURL, 0),
	}
}

// AddFrontPage adds the post feed front page to the sitemap.
func (b *SitemapBuilder) AddFrontPage() {
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL + "/",
		ChangeFreq: ChangeFreqDaily,
		Priority:   "1.0",
	})
}

// AddPost adds a blog post to the sitemap.
func (b *SitemapBuilder) AddPost(post SitemapPost) {
	url := SitemapURL{
		Loc:        fmt.Sprintf("%s/post/%d", b.siteURL, post.ID),
		ChangeFreq: ChangeFreqWeekly,
		Priority:   "0.8",
	}
	if !post.UpdatedAt.IsZero() {
		url.LastMod = post.UpdatedAt.Format(time.RFC3339)
	}
	b.urls = append(b.urls, url)
}

// AddPosts adds multiple posts to the sitemap.
func (b *SitemapBuilder) AddPosts(posts []SitemapPost) {
	for _, p := range posts {
		b.AddPost(p)
	}
}

// AddProfile adds a public user profile to the sitemap. Profiles carry
// no lastmod because last_seen changes on every request.
func (b *SitemapBuilder) AddProfile(profile SitemapProfile) {
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL + "/user/" + profile.Username,
		ChangeFreq: ChangeFreqWeekly,
		Priority:   "0.5",
	})
}

// AddProfiles adds multiple profiles to the sitemap.
func (b *SitemapBuilder) AddProfiles(profiles []SitemapProfile) {
	for _, p := range profiles {
		b.AddProfile(p)
	}
}

// Build generates the sitemap XML.
func (b *SitemapBuilder) Build() ([]byte, error) {
	sitemap := Sitemap{
		XMLNS: XMLNamespace,
		URLs:  b.urls,
	}

	output := []byte(xml.Header)
	xmlBytes, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}

	return append(output, xmlBytes...), nil
}

// GenerateSitemap is a convenience function to generate a sitemap from
// the site's public content.
func GenerateSitemap(siteURL string, posts []SitemapPost, profiles []SitemapProfile) ([]byte, error) {
	builder := NewSitemapBuilder(siteURL)
	builder.AddFrontPage()
	builder.AddPosts(posts)
	builder.AddProfiles(profiles)
	return builder.Build()
}
