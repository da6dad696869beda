// Package gophet provides time-series forecasting and binary event
// classification for Go, built on a decomposition forecaster with trend,
// seasonality, autoregression, and lagged covariates.
//
// The classification layer wraps the forecaster: it trains the same network
// under a binary cross-entropy loss and rounds the continuous forecasts into
// 0/1 class predictions, keeping the raw probabilities and residuals
// alongside them.
//
// # Features
//
//   - Decomposition forecasting: trend, Fourier seasonality, autoregression,
//     lagged regressors, multi-horizon output
//   - Binary classification over any lagged covariate, with accuracy,
//     balanced accuracy, and F1 tracking
//   - Multi-series frames with per-series prediction
//   - Mini-batch SGD and AdamW training
//   - Gob persistence for fitted models
//   - Forecast and training-history plots via gonum/plot
//
// # Installation
//
//	go get github.com/gophet/gophet
//
// # Quick Start
//
// Train a classifier on an hourly series whose label follows a lagged
// covariate:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/gophet/gophet/classification"
//	    "github.com/gophet/gophet/forecast"
//	)
//
//	func main() {
//	    clf, err := classification.New("",
//	        forecast.WithEpochs(40),
//	        forecast.WithCollectMetrics(true),
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fc := clf.Forecaster().(*forecast.Forecaster)
//	    if err := fc.AddLaggedRegressor("load", forecast.WithRegressorLags(1)); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    hist, err := clf.Fit(df) // df: dataset.Table with ds, y, load
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    acc, _ := hist.Last("Accuracy")
//	    fmt.Printf("accuracy: %.3f\n", acc)
//
//	    out, err := clf.Predict(df)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    probs, _ := out.Column("yhat_raw1")
//	    classes, _ := out.Column("yhat1")
//	    fmt.Println(probs[len(probs)-1], classes[len(classes)-1])
//	}
//
// # Packages
//
//   - classification: binary classification adapter over the forecaster
//   - forecast: the decomposition forecaster and its training loop
//   - dataset: columnar time-series frames and shape utilities
//   - metrics: metric objects, collections, and training history
//   - config: hyperparameter structs with defaulting and validation
//   - plot: forecast, classification, and history rendering
//   - core/model: estimator state and persistence primitives
//   - core/parallel: worker-pool helpers used by feature construction
//   - pkg/errors: typed errors over cockroachdb/errors
//   - pkg/log: zerolog-backed structured logging handles
package gophet
