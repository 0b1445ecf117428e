package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	srv := pageServer(t, "", `<html><head>
<script type="application/ld+json">{"@type":"JobPosting","title":"Intern"}</script>
</head><body>
<ul class="results">
  <li class="job-card featured"><a href="/jobs/1">Intern</a></li>
  <li class="job-card"><a href="/jobs/2">Co-op</a></li>
</ul>
<a href="/about">About</a>
</body></html>`)

	r, err := Inspect(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 200, r.StatusCode)
	assert.Equal(t, 1, r.JobPostings)
	assert.Equal(t, []string{"/jobs/1", "/jobs/2"}, r.JobLinks)
	require.NotEmpty(t, r.SampleCards)
	assert.Equal(t, "li.job-card", r.SampleCards[0].Selector)
	require.NotEmpty(t, r.TopClasses)
	assert.Equal(t, ClassCount{Name: "job-card", Count: 2}, r.TopClasses[0])

	out := FormatInspectResult(r)
	assert.Contains(t, out, "(use tier 0)")
	assert.Contains(t, out, "li.job-card")
}
