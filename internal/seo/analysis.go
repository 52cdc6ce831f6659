package seo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Bahjat/insight-router/internal/model"
)

const (
	shortTitleLength  = 30
	displayCap        = 100
	titleExamples     = 5
	metaExamples      = 10
	httpsExamples     = 20
	healthLongTitle   = 60
	deductHTTPS       = 20
	deductNoTitle     = 15
	deductLongTitle   = 10
	deductNoMeta      = 10
	deductErrorStatus = 15
)

// missingColumnReport describes a routine that could not run.
func missingColumnReport(d *Dataset, typ model.AnalysisType, missing []string) *model.SEOReport {
	return &model.SEOReport{
		AnalysisType:     typ,
		Error:            fmt.Sprintf("Required column not found in SEO data: %s", strings.Join(missing, ", ")),
		AvailableColumns: d.Columns(),
	}
}

func analyzeNonHTTPSLongTitles(d *Dataset, threshold int) *model.SEOReport {
	if missing := d.missing(ColAddress, ColTitle); len(missing) > 0 {
		return missingColumnReport(d, model.NonHTTPSLongTitles, missing)
	}

	findings := []model.Finding{}
	for i := range d.Len() {
		addr, title := d.Value(i, ColAddress), d.Value(i, ColTitle)
		if strings.HasPrefix(addr, "https://") || runeLen(title) <= threshold {
			continue
		}
		findings = append(findings, model.Finding{
			URL:         addr,
			Title:       truncate(title, displayCap),
			TitleLength: runeLen(title),
			Issues:      []string{"Non-HTTPS URL", fmt.Sprintf("Title exceeds %d characters", threshold)},
		})
	}

	return &model.SEOReport{
		Summary:      fmt.Sprintf("Found %d pages with non-HTTPS URLs and long titles", len(findings)),
		AnalysisType: model.NonHTTPSLongTitles,
		TotalIssues:  len(findings),
		Findings:     findings,
		Recommendations: []string{
			"Migrate all URLs to HTTPS for better security and SEO",
			fmt.Sprintf("Optimize page titles to be under %d characters", threshold),
			"Ensure titles are descriptive but concise",
			"Implement proper SSL certificates across the domain",
		},
	}
}

func analyzeTitles(d *Dataset, threshold int) *model.SEOReport {
	if missing := d.missing(ColTitle); len(missing) > 0 {
		return missingColumnReport(d, model.TitleAnalysis, missing)
	}

	var missingTitles, longTitles, shortTitles []int
	for i := range d.Len() {
		n := runeLen(d.Value(i, ColTitle))
		switch {
		case n == 0:
			missingTitles = append(missingTitles, i)
		case n > threshold:
			longTitles = append(longTitles, i)
		}
		if n > 0 && n < shortTitleLength {
			shortTitles = append(shortTitles, i)
		}
	}

	issues := []model.Issue{}
	for _, i := range head(missingTitles, titleExamples) {
		issues = append(issues, model.Issue{
			URL:            d.Value(i, ColAddress),
			Issue:          "Missing title tag",
			Recommendation: "Add descriptive title tag",
		})
	}
	for _, i := range head(longTitles, titleExamples) {
		title := d.Value(i, ColTitle)
		issues = append(issues, model.Issue{
			URL:            d.Value(i, ColAddress),
			Title:          truncate(title, displayCap),
			Length:         runeLen(title),
			Issue:          fmt.Sprintf("Title exceeds %d characters", threshold),
			Recommendation: "Shorten title while maintaining descriptiveness",
		})
	}
	for _, i := range head(shortTitles, titleExamples) {
		title := d.Value(i, ColTitle)
		issues = append(issues, model.Issue{
			URL:            d.Value(i, ColAddress),
			Title:          title,
			Length:         runeLen(title),
			Issue:          fmt.Sprintf("Title shorter than %d characters", shortTitleLength),
			Recommendation: "Expand title with descriptive keywords",
		})
	}

	return &model.SEOReport{
		Summary:      fmt.Sprintf("Title analysis complete. Found %d issues across %d pages.", len(issues), d.Len()),
		AnalysisType: model.TitleAnalysis,
		Statistics: map[string]any{
			"missing_titles": len(missingTitles),
			"long_titles":    len(longTitles),
			"short_titles":   len(shortTitles),
			"total_pages":    d.Len(),
		},
		Issues: issues,
		Recommendations: []string{
			"Ensure all pages have unique, descriptive titles",
			fmt.Sprintf("Keep titles between %d-%d characters", shortTitleLength, threshold),
			"Include target keywords naturally in titles",
			"Avoid duplicate titles across pages",
		},
	}
}

func analyzeMetaDescriptions(d *Dataset, threshold int) *model.SEOReport {
	if missing := d.missing(ColMeta); len(missing) > 0 {
		return missingColumnReport(d, model.MetaDescriptionAnalysis, missing)
	}

	var missingMeta, longMeta []int
	for i := range d.Len() {
		switch n := runeLen(d.Value(i, ColMeta)); {
		case n == 0:
			missingMeta = append(missingMeta, i)
		case n > threshold:
			longMeta = append(longMeta, i)
		}
	}

	issues := []model.Issue{}
	for _, i := range head(missingMeta, metaExamples) {
		issues = append(issues, model.Issue{
			URL:            d.Value(i, ColAddress),
			Issue:          "Missing meta description",
			Recommendation: "Add compelling meta description to improve click-through rates",
		})
	}
	for _, i := range head(longMeta, metaExamples) {
		meta := d.Value(i, ColMeta)
		issues = append(issues, model.Issue{
			URL:             d.Value(i, ColAddress),
			MetaDescription: truncate(meta, displayCap),
			Length:          runeLen(meta),
			Issue:           fmt.Sprintf("Meta description exceeds %d characters", threshold),
			Recommendation:  "Shorten meta description to avoid truncation in search results",
		})
	}

	return &model.SEOReport{
		Summary:      fmt.Sprintf("Meta description analysis: %d missing, %d too long", len(missingMeta), len(longMeta)),
		AnalysisType: model.MetaDescriptionAnalysis,
		Statistics: map[string]any{
			"missing_meta_descriptions": len(missingMeta),
			"long_meta_descriptions":    len(longMeta),
			"total_pages":               d.Len(),
		},
		Issues: issues,
		Recommendations: []string{
			fmt.Sprintf("Keep meta descriptions under %d characters", threshold),
			"Write compelling, action-oriented descriptions",
			"Include target keywords naturally",
			"Make each meta description unique and relevant to page content",
		},
	}
}

func analyzeHTTPS(d *Dataset) *model.SEOReport {
	if missing := d.missing(ColAddress); len(missing) > 0 {
		return missingColumnReport(d, model.HTTPSAnalysis, missing)
	}

	var secure int
	var insecure []int
	for i := range d.Len() {
		addr := d.Value(i, ColAddress)
		switch {
		case strings.HasPrefix(addr, "https://"):
			secure++
		case strings.HasPrefix(addr, "http://"):
			insecure = append(insecure, i)
		}
	}

	var pct float64
	if d.Len() > 0 {
		pct = float64(secure) / float64(d.Len()) * 100
	}

	issues := []model.Issue{}
	for _, i := range head(insecure, httpsExamples) {
		issues = append(issues, model.Issue{
			URL:            d.Value(i, ColAddress),
			Issue:          "Using HTTP instead of HTTPS",
			Recommendation: "Redirect to HTTPS version",
		})
	}

	return &model.SEOReport{
		Summary:      fmt.Sprintf("HTTPS adoption: %.1f%% of pages use HTTPS", pct),
		AnalysisType: model.HTTPSAnalysis,
		Statistics: map[string]any{
			"https_urls":       secure,
			"http_urls":        len(insecure),
			"https_percentage": math.Round(pct*10) / 10,
			"total_urls":       d.Len(),
		},
		Issues: issues,
		Recommendations: []string{
			"Implement HTTPS across all pages",
			"Set up proper SSL certificates",
			"Redirect all HTTP URLs to HTTPS versions",
			"Update internal links to use HTTPS",
		},
	}
}

// generalHealth starts from 100 and deducts a fixed weight for each kind of
// problem present, regardless of how many pages have it. The status check
// only runs when the dataset has a status column.
func generalHealth(d *Dataset) *model.SEOReport {
	if missing := d.missing(ColAddress, ColTitle, ColMeta); len(missing) > 0 {
		return missingColumnReport(d, model.GeneralSEOHealth, missing)
	}

	var insecure, noTitle, longTitle, noMeta, errorPages int
	hasStatus := d.HasColumn(ColStatusCode)
	for i := range d.Len() {
		if strings.HasPrefix(d.Value(i, ColAddress), "http://") {
			insecure++
		}
		switch n := runeLen(d.Value(i, ColTitle)); {
		case n == 0:
			noTitle++
		case n > healthLongTitle:
			longTitle++
		}
		if d.Value(i, ColMeta) == "" {
			noMeta++
		}
		if hasStatus && !isOK(d.Value(i, ColStatusCode)) {
			errorPages++
		}
	}

	score := 100
	var issues []model.Issue
	deduct := func(count, weight int, format string) {
		if count == 0 {
			return
		}
		score -= weight
		issues = append(issues, model.Issue{Issue: fmt.Sprintf(format, count)})
	}
	deduct(insecure, deductHTTPS, "%d pages not using HTTPS")
	deduct(noTitle, deductNoTitle, "%d pages missing titles")
	deduct(longTitle, deductLongTitle, "%d pages have titles over 60 characters")
	deduct(noMeta, deductNoMeta, "%d pages missing meta descriptions")
	deduct(errorPages, deductErrorStatus, "%d pages returning error status codes")
	score = max(score, 0)

	return &model.SEOReport{
		Summary:            fmt.Sprintf("SEO Health Score: %d/100", score),
		AnalysisType:       model.GeneralSEOHealth,
		HealthScore:        &score,
		TotalPagesAnalyzed: d.Len(),
		TotalIssues:        len(issues),
		Issues:             issues,
		Recommendations: []string{
			"Prioritize fixing HTTPS issues for security and ranking benefits",
			"Ensure all pages have unique, optimized titles",
			"Add compelling meta descriptions to improve click-through rates",
			"Fix any technical errors affecting page accessibility",
			"Regularly monitor and maintain SEO health metrics",
		},
	}
}

func isOK(status string) bool {
	f, err := strconv.ParseFloat(status, 64)
	return err == nil && f == 200
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// truncate caps s at n characters, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func head(idx []int, n int) []int {
	if len(idx) > n {
		return idx[:n]
	}
	return idx
}
