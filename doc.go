// Package kle provides:
//
// - A normalized model of a physical keyboard layout (Keyboard / Key / KeyboardMetadata)
// - Deserialize: the compact row-oriented KLE encoding -> Keyboard
// - Serialize: Keyboard -> the smallest row sequence that decodes back to it
// - Text entry points over a JSON5 reader (Parse / ParseRaw / Stringify / StringifyRaw)
// - A stable error model via Issues (JSON Pointer, code, message)
//
// Design policy:
// - Keep the codec and the model in the root package; token plumbing lives under internal/.
// - Place wire-format adapters under codec/ and the CLI under cmd/kle.
// - Deserialize and Serialize are pure functions of their input.
//
// Typical usage:
//
//	kbd, err := kle.Parse(data)
//	rows := kle.Serialize(kbd)
//	out, err := kle.Stringify(kbd)
package kle
