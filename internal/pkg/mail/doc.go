// Package mail sends plain email messages.
//
// Delivery agents build a Message and hand it to a Mail; SMTP is the only
// provider. Each message carries its own Message-ID so the sender can report
// it back as the delivery receipt.
package mail
