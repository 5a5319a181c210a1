// Package watch maintains a periodically refreshed snapshot of one batch:
// the merged batch view plus the phone-number inventory. Interval refreshes
// and on-demand refreshes may interleave freely; readers always see a
// complete snapshot from a single fetch round.
package watch
