// Package extract pulls sensitive entities out of leak snippets.
//
// Emails and password-shaped tokens are found with regular expressions.
// People, organizations, places, money and numbers come from a Recognizer;
// the default one runs the prose NER model over a bounded prefix of the
// text. Extraction is best effort and never fails a scan.
package extract
