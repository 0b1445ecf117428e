// Package internal holds the MrIntern server.
//
//   - api: routing, middleware, JSON handlers and server-rendered pages
//   - domain: listings, saved filters, tracker, recruiters, reviews, resumes, advice, push subscriptions, users
//   - storage: Postgres repositories and blob storage for resume files
//   - jobs, alerts, email, push: the alert pipeline and its delivery channels
//   - scraper: listing import from career pages
package internal
