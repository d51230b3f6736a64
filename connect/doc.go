// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package connect reconciles device-originated notifications into a single
in-process event stream

The cloud delivers notifications over exactly one of two mutually exclusive
channels: a long-poll pull channel, or a push webhook registered with the
cloud. The Coordinator drives either channel and demultiplexes the received
batches into per-kind events, resolves pending asynchronous device
operations, and invokes per-resource subscription callbacks.

A batch may contain any combination of resource value updates, device
registrations, re-registrations, deregistrations, registration expirations
and async command responses. Within one batch the processing order is fixed:
notifications, registrations, re-registrations, deregistrations,
expirations, async responses.

Device resource operations (value get/set/execute, subscription add/delete)
complete asynchronously while a notification channel is active: the cloud
acknowledges them with an opaque async id, and the result arrives later
inside a notification batch. Callers receive an AsyncValue future and wait
on it with a context of their choosing; the coordinator itself imposes no
timeout.
*/
package connect
