package config

// defaultYAML mirrors the reference rig: three panel switches on GP26-28
// driving four servos, with switch 0 throwing a pair.
const defaultYAML = `
poll_interval: 200ms
step_period: 20ms
debounce: 5ms

switches:
  - {index: 0, pin: 26}
  - {index: 1, pin: 27}
  - {index: 2, pin: 28}

servos:
  - {id: point-a, channel: 0, off_duty: 1100, on_duty: 1650, transit: 1s}
  - {id: point-b, channel: 1, off_duty: 1250, on_duty: 1500, transit: 1s}
  - {id: signal-a, channel: 2, off_duty: 1000, on_duty: 2000, transit: 1s}
  - {id: signal-b, channel: 3, off_duty: 1000, on_duty: 2000, transit: 2s, idle_off: true}

bindings:
  - {switch: 0, servo: point-a}
  - {switch: 0, servo: point-b}
  - {switch: 1, servo: signal-a}
  - {switch: 2, servo: signal-b}

heartbeat:
  interval: 1s
`
