// Package services holds cross-cutting helpers shared by the backend-facing
// clients: the error taxonomy used for classifying failures and the context
// keys used for request correlation.
package services
