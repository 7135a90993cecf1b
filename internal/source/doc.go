// Package source builds the candidate URL set for a company.
//
// Every (search backend, search term) pair is queried with
// "<term> <company>"; the anchors of each result page are collected,
// filtered and unioned with the static site list. Queries are paced by a
// token bucket so the backends are not hammered. A failing backend only
// contributes nothing.
package source
