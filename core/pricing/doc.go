// Package pricing predicts the daily rental price of a car.
//
// The pipeline one-hot encodes the categorical features, standardizes the
// numeric ones, passes booleans through as 0/1 and fits a ridge regression.
// A fitted Model is serialized as JSON and stored in the model registry.
package pricing
