// Package lifecycle describes schedule and run states as the dashboard sees
// them: display badges, the transitions a client may request, and the ones
// only the remote engine performs.
//
// Nothing here mutates state. The remote service is authoritative; a
// rejected transition comes back as a normalized error and the view keeps
// showing what the service last reported.
package lifecycle
