package scraper

import "errors"

var (
	// ErrNoData means the page exists but the site reports no data for the
	// race (not published yet, or no meeting at the venue today). Not an
	// error condition: the caller skips and retries on a later cycle.
	ErrNoData = errors.New("no data for race")

	// ErrNotConcluded means the result page is up but the race has not been
	// settled yet. Retried indefinitely by the reconciler.
	ErrNotConcluded = errors.New("race not concluded yet")

	// ErrBlocked means the site served its anti-bot stub page instead of
	// real content.
	ErrBlocked = errors.New("blocked by anti-bot protection")
)
