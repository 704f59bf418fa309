// Package triage provides the business boundary for medic's symptom triage.
// It defines the Classifier (pure keyword rules), the Dispatcher (prediction
// backend with rule-based fallback), the Service (validation, identity,
// notification) and the verdict model shared by every path.
package triage
