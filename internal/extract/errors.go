package extract

import "errors"

// ErrRecognizerUnavailable is returned by Provision when the NER model
// cannot be loaded. It is a startup error, never a runtime one.
var ErrRecognizerUnavailable = errors.New("named entity recognizer unavailable")
