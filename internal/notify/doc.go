// Package notify delivers leak alerts to the operator.
//
// Two sinks exist: EmailSink submits a plain-text summary over
// authenticated SMTP with STARTTLS, WebhookSink POSTs a JSON payload.
// A Dispatcher fans one Alert out to every configured sink; a failing sink
// is logged and never prevents the others from running. Nothing is retried.
package notify
