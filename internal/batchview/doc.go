// Package batchview merges batch details with analysis results into a single
// presentable view. Calls and results may identify the same call by either
// its SIP call id or its UUID, so the merge matches on both and counts each
// call once.
package batchview
