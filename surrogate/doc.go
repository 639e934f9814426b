// Package surrogate defines the Model shared by every surrogate variant.
//
// A Model combines an options instance, a training point store and a fitting
// routine supplied by the variant:
//
//	sm := rmts.New()
//	_ = sm.SetOption(surrogate.OptXLimits, xlimits)
//	if err := sm.AddTrainingPoints(training.Exact, xt, yt); err != nil {
//		return err
//	}
//	if err := sm.Train(); err != nil {
//		return err
//	}
//	y, err := sm.Predict(x)
//
// When training points are checked against the xlimits domain depends on the
// variant's DomainPolicy. Predict never checks the domain.
package surrogate
