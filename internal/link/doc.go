// Package link brings the network link up and keeps it up.
//
// The Manager walks a prioritized credential chain until the link is up:
//
//  1. previously saved link credentials
//  2. enterprise (802.1X) credentials, when an identity and secret are both
//     configured and the board's radio supports it
//  3. the default credentials baked into the agent settings
//  4. interactive reconfiguration (the portal), as a last resort
//
// Each branch makes a bounded number of attempts, each with its own timeout,
// and the radio is explicitly disconnected between attempts so a retry never
// lands on a half-open association. Exhausted enterprise attempts disable
// the enterprise profile before falling through; leaving the radio parked in
// an 802.1X auth state blocks subsequent plain connects.
//
// The Radio interface is the platform boundary. On Linux it is implemented
// by driving nmcli as a subprocess; tests substitute a fake.
package link
