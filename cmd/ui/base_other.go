//go:build !js

package main

import "pomodoro-todo/internal/client"

const defaultBase = client.DefaultBase
