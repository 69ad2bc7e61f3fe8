// Package notifications tells the outside world about finished runs.
//
// Two notifiers exist. The website hook issues a GET against the configured
// publisher update_url once a sermon is published so the church site picks
// it up. The ntfy notifier posts push messages for published sermons and
// failures. Both sit behind the Service interface; callers treat delivery as
// best effort.
package notifications
