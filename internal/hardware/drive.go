package hardware

import "time"

// Simulated field geometry for the charge station ramp, in meters.
const (
	rampStart  = 1.0
	rampTop    = 1.6
	rampPitch  = 12.0
	maxSpeed   = 3.0  // m/s at full output
	maxTurnDeg = 180. // deg/s at full rotation
)

// DriveSystem is a four-motor differential drive with a gyro.
type DriveSystem struct {
	FrontLeft, FrontRight, BackLeft, BackRight *Motor
	gyro                                       *Device

	period   time.Duration
	position float64
	heading  float64
}

// NewDriveSystem attaches the drive devices to bus. period is the control
// period used to integrate the simulated pose.
func NewDriveSystem(bus *Bus, period time.Duration) *DriveSystem {
	return &DriveSystem{
		FrontLeft:  &Motor{Device: bus.Attach("drive.frontLeft")},
		FrontRight: &Motor{Device: bus.Attach("drive.frontRight")},
		BackLeft:   &Motor{Device: bus.Attach("drive.backLeft")},
		BackRight:  &Motor{Device: bus.Attach("drive.backRight")},
		gyro:       bus.Attach("drive.gyro"),
		period:     period,
	}
}

// ArcadeDrive sets the motors from a forward speed and a rotation rate.
func (d *DriveSystem) ArcadeDrive(forward, rotation float64) {
	left := clamp(forward + rotation)
	right := clamp(forward - rotation)
	d.FrontLeft.Set(left)
	d.BackLeft.Set(left)
	d.FrontRight.Set(right)
	d.BackRight.Set(right)
}

// Stop zeroes every motor.
func (d *DriveSystem) Stop() { d.ArcadeDrive(0, 0) }

// Output returns the mean left and right outputs.
func (d *DriveSystem) Output() (left, right float64) {
	left = (d.FrontLeft.Get() + d.BackLeft.Get()) / 2
	right = (d.FrontRight.Get() + d.BackRight.Get()) / 2
	return left, right
}

// Periodic integrates the simulated pose from the current motor output.
func (d *DriveSystem) Periodic() {
	left, right := d.Output()
	dt := d.period.Seconds()
	d.position += (left + right) / 2 * maxSpeed * dt
	d.heading += (left - right) / 2 * maxTurnDeg * dt
}

// Position returns distance driven in meters.
func (d *DriveSystem) Position() float64 { return d.position }

// Heading returns the gyro yaw in degrees, or 0 with the gyro disconnected.
func (d *DriveSystem) Heading() float64 {
	if !d.gyro.Connected() {
		return 0
	}
	return d.heading
}

// Pitch returns the gyro pitch in degrees. The robot tilts while it is on
// the ramp and levels off on top.
func (d *DriveSystem) Pitch() float64 {
	if !d.gyro.Connected() {
		return 0
	}
	if d.position >= rampStart && d.position < rampTop {
		return rampPitch
	}
	return 0
}

// ResetPose zeroes position and heading.
func (d *DriveSystem) ResetPose() {
	d.position, d.heading = 0, 0
}

func (d *DriveSystem) CheckConnectivity() string {
	return connectivity(d.FrontLeft.Device, d.FrontRight.Device, d.BackLeft.Device, d.BackRight.Device, d.gyro)
}
