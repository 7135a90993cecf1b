// Package classify decides whether fetched text looks like a data leak
// concerning a company.
//
// Text and company are normalized (NFKC, then Unicode case folding) before
// any comparison, so "ＡＣＭＥ" and "acme" match. A page is a leak when it
// mentions the company and at least one term of the indicator vocabulary.
package classify
