// Package servo implements the behavior of the emulated servo: the command
// dispatcher turning decoded frames into triggers, and the sequencer driving
// the PWM output through an actuation profile on each trigger.
package servo
