package hardware

// GripperSystem owns the intake motor.
type GripperSystem struct {
	Intake *Motor
}

func NewGripperSystem(bus *Bus) *GripperSystem {
	return &GripperSystem{Intake: &Motor{Device: bus.Attach("gripper.intake")}}
}

// SetIntake runs the intake; positive pulls game pieces in.
func (g *GripperSystem) SetIntake(speed float64) { g.Intake.Set(speed) }

func (g *GripperSystem) Stop() { g.Intake.Set(0) }

func (g *GripperSystem) CheckConnectivity() string {
	return connectivity(g.Intake.Device)
}

// Limelight is the vision camera. It is not a subsystem; it is only probed.
type Limelight struct {
	cam *Device
}

func NewLimelight(bus *Bus) *Limelight {
	return &Limelight{cam: bus.Attach("limelight")}
}

func (l *Limelight) CheckConnectivity() string {
	return connectivity(l.cam)
}
