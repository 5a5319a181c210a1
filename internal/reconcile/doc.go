// Package reconcile drives batch re-analysis to convergence. A session
// triggers bulk analysis on the backend, then polls the analysis summary on a
// fixed cadence until every expected call has a result, the poll ceiling is
// reached, or the caller cancels. Transient fetch failures are logged and the
// session keeps polling; reported progress never moves backwards even when
// the backend momentarily returns a shorter result list.
package reconcile
