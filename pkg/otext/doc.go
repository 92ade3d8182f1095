// Package otext implements malicious secure 1-out-of-2 oblivious
// transfer extension: kappa base OTs are amplified into any number of OTs
// with the IKNP matrix construction, guarded by the KOS consistency
// check over GF(2^128).
//
// A session is one Sender and one Receiver connected by a
// channel.Channel. Both run BaseSetup once and then Extend once; the
// base OT seeds are consumed by that extension, so every further
// batch needs a fresh session.
//
// Three variants are available, fixed per session: random OT,
// correlated OT where every pair satisfies m1 = m0 XOR delta, and chosen
// message OT.
package otext
