package plugin

import (
	"encoding/json"
	"fmt"
)

// keyPressAction is the manifest action a plugin must declare to receive
// key taps from gesture bindings.
const keyPressAction = "key_press"

// Keyboard routes key taps to whichever discovered plugin declares the
// key_press action. It satisfies the control loop's KeySender interface,
// which keeps the session free of any direct platform keyboard dependency.
type Keyboard struct {
	manager  *Manager
	executor *Executor
}

// NewKeyboard creates a Keyboard backed by the given manager and executor.
func NewKeyboard(manager *Manager, executor *Executor) *Keyboard {
	return &Keyboard{
		manager:  manager,
		executor: executor,
	}
}

// KeyTap asks the key_press plugin to tap the named key once.
func (k *Keyboard) KeyTap(key string) error {
	if key == "" {
		return fmt.Errorf("key tap: key is empty")
	}

	plug, err := k.manager.FindAction(keyPressAction)
	if err != nil {
		return fmt.Errorf("key tap %q: %w", key, err)
	}

	params, err := json.Marshal(map[string]string{"key": key})
	if err != nil {
		return fmt.Errorf("key tap %q: %w", key, err)
	}

	resp, err := k.executor.Execute(plug, &Request{
		Action: keyPressAction,
		Params: params,
	})
	if err != nil {
		return fmt.Errorf("key tap %q: %w", key, err)
	}
	if !resp.Success {
		return fmt.Errorf("key tap %q: plugin %s: %s", key, plug.Manifest.Name, resp.Error)
	}

	return nil
}
